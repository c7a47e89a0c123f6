package pipeline

import "strings"

// systemPrompt renders the agent persona as the system message.
func (a Agent) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are ")
	b.WriteString(a.Role)
	b.WriteString(". ")
	b.WriteString(a.Backstory)
	b.WriteString("\nYour personal goal is: ")
	b.WriteString(a.Goal)
	return b.String()
}

// userPrompt renders the stage instruction: the interpolated template,
// context from earlier stages, then the expected-output criteria.
func (st Stage) userPrompt(in Inputs, outputs map[string]string) string {
	var b strings.Builder
	b.WriteString(interpolate(st.Description, in))
	if len(st.ContextFrom) > 0 {
		b.WriteString("\n\nThis is the context you're working with:\n")
		for i, key := range st.ContextFrom {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(outputs[key])
		}
	}
	if st.ExpectedOutput != "" {
		b.WriteString("\n\nThis is the expected criteria for your final answer: ")
		b.WriteString(st.ExpectedOutput)
	}
	return b.String()
}

// interpolate substitutes {key} placeholders with runtime input values.
// Unknown placeholders are left untouched.
func interpolate(template string, in Inputs) string {
	out := template
	for k, v := range in {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
