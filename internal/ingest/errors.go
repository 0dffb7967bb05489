package ingest

// ParseError reports an upload that could not be turned into transactions.
// Its message is safe to show to the client.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(msg string) *ParseError {
	return &ParseError{Msg: msg}
}
