package ideas

// Patch is a sparse update of an idea: a nil field is left untouched. JSON
// null and an omitted key both decode to nil.
type Patch struct {
	Text            *string     `json:"text"`
	Domain          *string     `json:"domain"`
	Recommendations *string     `json:"recommendations"`
	AIFeedback      *string     `json:"ai_feedback"`
	FeatureList     *string     `json:"feature_list"`
	ChatHistory     *[]ChatTurn `json:"chat_history"`
	CreatedBy       *string     `json:"created_by"`
}

// Assignment sets one column. Now marks a server-clock timestamp instead of a
// bound value.
type Assignment struct {
	Column string
	Value  any
	Now    bool
}

func (p Patch) IsEmpty() bool {
	return len(p.fieldAssignments()) == 0
}

// Assignments lists the columns to write, in a fixed order, followed by the
// derived timestamps: feature_list_generated_at when a feature list is
// supplied and updated_at whenever anything is. An empty patch yields nil.
func (p Patch) Assignments() []Assignment {
	out := p.fieldAssignments()
	if len(out) == 0 {
		return nil
	}
	if p.FeatureList != nil {
		out = append(out, Assignment{Column: "feature_list_generated_at", Now: true})
	}
	return append(out, Assignment{Column: "updated_at", Now: true})
}

func (p Patch) fieldAssignments() []Assignment {
	var out []Assignment
	add := func(col string, v *string) {
		if v != nil {
			out = append(out, Assignment{Column: col, Value: *v})
		}
	}
	add("text", p.Text)
	add("domain", p.Domain)
	add("recommendations", p.Recommendations)
	add("ai_feedback", p.AIFeedback)
	add("feature_list", p.FeatureList)
	if p.ChatHistory != nil {
		turns := *p.ChatHistory
		if turns == nil {
			turns = []ChatTurn{}
		}
		out = append(out, Assignment{Column: "chat_history", Value: turns})
	}
	add("created_by", p.CreatedBy)
	return out
}
