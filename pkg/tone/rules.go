package tone

// Mode selects a substitution table. Unknown modes fall back to neutral.
type Mode string

const (
	ModeNeutral Mode = "neutral"
	ModeFormal  Mode = "formal"
	ModeCasual  Mode = "casual"
	ModeConcise Mode = "concise"
)

// rule pairs keep insertion order so longer phrases are applied before the
// shorter ones they contain.
type rule struct {
	from string
	to   string
}

var formalRules = []rule{
	{"don't", "do not"},
	{"can't", "cannot"},
	{"won't", "will not"},
	{"gonna", "will"},
	{"wanna", "want to"},
	{"gotta", "must"},
	{"kinda", "somewhat"},
	{"sorta", "rather"},
	{"yeah", "yes"},
	{"nope", "no"},
	{"btw", "by the way"},
	{"asap", "as soon as possible"},
	{"ya", "you"},
	{"you know", ""},
	{"I mean", ""},
	{"like", ""},
}

var casualRules = []rule{
	{"do not", "don't"},
	{"cannot", "can't"},
	{"will not", "won't"},
	{"must", "gotta"},
	{"somewhat", "kinda"},
	{"rather", "sorta"},
	{"hello", "hey"},
	{"goodbye", "bye"},
}

var conciseRules = []rule{
	{"I think that", "I think"},
	{"in order to", "to"},
	{"due to the fact that", "because"},
	{"at this point in time", "now"},
	{"for the purpose of", "to"},
}

func rulesFor(mode Mode) []rule {
	switch mode {
	case ModeFormal:
		return formalRules
	case ModeCasual:
		return casualRules
	case ModeConcise:
		return conciseRules
	default:
		return nil
	}
}
