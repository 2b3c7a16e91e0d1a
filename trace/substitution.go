package trace

// Substitutions maps a process instance to its formal to actual parameter
// bindings, as declared by lines such as
//
//	P1 = Pedestrian(pWantCrss, pCrss);
type Substitutions map[string]map[string]string

// Resolve returns the actual name bound to formal in process.
func (s Substitutions) Resolve(process, formal string) (string, bool) {
	actual, ok := s[process][formal]
	return actual, ok
}
