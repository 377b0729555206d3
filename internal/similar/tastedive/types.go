package tastedive

// Result is a single entry of the similarity response.
type Result struct {
	Name string `json:"Name"`
	Type string `json:"Type"`
}

// similarResponse is the TasteDive response envelope. Pointers distinguish
// missing keys from empty ones. encoding/json matches keys case-insensitively,
// so both the legacy ("Similar"/"Results") and current ("similar"/"results")
// spellings decode.
type similarResponse struct {
	Similar *similarBlock `json:"Similar"`
	Error   string        `json:"error"`
}

type similarBlock struct {
	Info    []Result  `json:"Info"`
	Results *[]Result `json:"Results"`
}
