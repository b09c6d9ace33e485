package script

// ScopeDefaults is the state inherited by every element below a scope. Values
// are copied on each With call so a subtree's overrides never leak upward.
type ScopeDefaults struct {
	Output      string
	Input       string
	Compress    bool
	Premultiply bool
}

func (s ScopeDefaults) WithOutput(output string) ScopeDefaults {
	s.Output = output
	return s
}

func (s ScopeDefaults) WithInput(input string) ScopeDefaults {
	s.Input = input
	return s
}

func (s ScopeDefaults) WithCompress(compress bool) ScopeDefaults {
	s.Compress = compress
	return s
}

func (s ScopeDefaults) WithPremultiply(premultiply bool) ScopeDefaults {
	s.Premultiply = premultiply
	return s
}

// input composes the inherited input prefix with p.
func (s ScopeDefaults) input(p string) string {
	return join(s.Input, p)
}
