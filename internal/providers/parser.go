package providers

import "strings"

// ProviderRef binds a routing slot to a backend, e.g. "research:perplexity".
type ProviderRef struct {
	Raw     string
	Slot    string
	Backend string
}

func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p}
		if strings.Contains(p, ":") {
			x := strings.SplitN(p, ":", 2)
			ref.Slot = strings.ToLower(strings.TrimSpace(x[0]))
			ref.Backend = strings.ToLower(strings.TrimSpace(x[1]))
		} else {
			ref.Slot = strings.ToLower(p)
			ref.Backend = "mock"
		}
		out = append(out, ref)
	}
	return out
}
