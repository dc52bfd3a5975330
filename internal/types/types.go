package types

type CompileResult struct {
	Passing bool
}

type TestResult struct {
	Passing bool
}

// FunctionPair is the buggy/fixed fragment pair of a single-function bug.
// Either side may be empty when the fix adds or removes a whole function.
type FunctionPair struct {
	Buggy string `json:"buggy_code"`
	Fixed string `json:"fixed_code"`
}

const (
	StatusExtracted = "extracted"
	StatusSkipped   = "skipped"
	StatusError     = "error"
)

// Record is one line of the extraction output.
type Record struct {
	Identifier   string            `json:"identifier"`
	Project      string            `json:"project"`
	Language     string            `json:"language"`
	Status       string            `json:"status"`
	Hypothesis   string            `json:"hypothesis,omitempty"`
	BuggyCode    string            `json:"buggy_code,omitempty"`
	FixedCode    string            `json:"fixed_code,omitempty"`
	FailingTests map[string]string `json:"failing_tests,omitempty"`
	GroundTruth  string            `json:"ground_truth,omitempty"`
	Error        string            `json:"error,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Generation struct {
	Content string `json:"content"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Sample is a record plus the prompt sent to the model and what came back.
type Sample struct {
	Record
	Provider    string       `json:"provider"`
	Model       string       `json:"model"`
	Prompt      string       `json:"prompt"`
	Generations []Generation `json:"generations"`
}

type CandidateResult struct {
	Patch       string `json:"patch"`
	Applied     bool   `json:"applied"`
	Compiles    bool   `json:"compiles"`
	TestsPass   bool   `json:"tests_pass"`
	ExactMatch  bool   `json:"exact_match"`
	Explanation string `json:"explanation,omitempty"`
}

type Evaluation struct {
	Identifier string            `json:"identifier"`
	Model      string            `json:"model"`
	Candidates []CandidateResult `json:"candidates"`
	Error      string            `json:"error,omitempty"`
}

type Costs struct {
	PromptCost     float64 `json:"prompt_cost"`
	CompletionCost float64 `json:"completion_cost"`
	TotalCost      float64 `json:"total_cost"`
}
