package extractor

import "fmt"

// ConnectionError is the gating failure of the connection-test stage.
type ConnectionError struct {
	Msg string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("database connection failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("database connection failed: %s", e.Msg)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IntrospectionError is the gating failure of the schema-introspection
// stage.
type IntrospectionError struct {
	Msg string
	Err error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("schema introspection failed: %s: %v", e.Msg, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// QueryTimeoutError marks a stage that exceeded its deadline. Gating when it
// occurs in the probe or introspection stage; isolated to one table inside
// quality analysis.
type QueryTimeoutError struct {
	Stage string
	Err   error
}

func (e *QueryTimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded its deadline: %v", e.Stage, e.Err)
}

func (e *QueryTimeoutError) Unwrap() error { return e.Err }

// TableAnalysisError marks one table whose quality metrics could not be
// computed. Non-gating: it is recorded in that table's QualityMetric and the
// batch continues.
type TableAnalysisError struct {
	Schema string
	Table  string
	Err    error
}

func (e *TableAnalysisError) Error() string {
	return fmt.Sprintf("quality analysis failed for table %s.%s: %v", e.Schema, e.Table, e.Err)
}

func (e *TableAnalysisError) Unwrap() error { return e.Err }
