package matching

// Index sizes, for tests that check closed orders do not accumulate.

func (e *Engine) ClientIDCount() int { return len(e.clientIDs) }

func (e *Engine) ClosedCount() int { return e.closed.len() }
