package models

// Judge verdict labels.
const (
	VerdictCorrect   = "CORRECT"
	VerdictIncorrect = "INCORRECT"
	VerdictUnsure    = "UNSURE"
)

// EvalQuestion pairs a question with the answer a correct response must
// substantiate.
type EvalQuestion struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"answer"`
}

// Reference identifies a retrieved source by URL and title.
type Reference struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// EvalRecord captures one judged question: the judge's verdict text, the index
// positions retrieved for it, and the references those positions resolved to.
type EvalRecord struct {
	Question   string      `json:"question"`
	Response   string      `json:"response"`
	KNN        []int       `json:"knn"`
	References []Reference `json:"references"`
}

// EvalError records a question whose pipeline failed before judgement,
// together with the stage that failed.
type EvalError struct {
	Question string `json:"question"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// EvalStats aggregates one run. Unclassified holds judged questions whose
// verdict matched no known label; they are excluded from the three buckets
// and from the metrics.
type EvalStats struct {
	SuccessfulCount int          `json:"successful_evals_count"`
	FailedCount     int          `json:"failed_evals_count"`
	UnsureCount     int          `json:"unsure_evals_count"`
	Precision       float64      `json:"precision"`
	Recall          float64      `json:"recall"`
	F1Score         float64      `json:"f1_score"`
	StartedTime     string       `json:"eval_started_time"`
	EndedTime       string       `json:"eval_ended_time"`
	UUID            string       `json:"uuid"`
	Successful      []EvalRecord `json:"successful_evals"`
	Failed          []EvalRecord `json:"failed_evals"`
	Unsure          []EvalRecord `json:"unsure_evals"`
	Unclassified    []EvalRecord `json:"unclassified_evals,omitempty"`
	Errored         []EvalError  `json:"errored_evals,omitempty"`
}

// EvalReport is one appended entry of the run log, binding a run's stats to
// the prompt template and index generation it exercised.
type EvalReport struct {
	EvalUUID    string    `json:"eval_uuid"`
	PromptID    string    `json:"prompt_id"`
	IndexID     int       `json:"index_id"`
	IndexName   string    `json:"index_name"`
	GeneratedOn string    `json:"generated_on"`
	Stats       EvalStats `json:"stats"`
}
