package model

// Reply is what the agent decided to answer. It is either a TextReply or a
// ToolInvocation; callers switch on the concrete type.
type Reply interface {
	isReply()
}

// TextReply is a finished answer, possibly with inline markup (links).
type TextReply struct {
	Text string
}

// ToolInvocation is a lookup the model asked for. The agent never runs it.
type ToolInvocation struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

func (TextReply) isReply()      {}
func (ToolInvocation) isReply() {}

// AgentOutput is the graph's END value; Reply converts it to the variant.
type AgentOutput struct {
	Route string
	Text  string
	Tool  *ToolInvocation
}

func (o *AgentOutput) Reply() Reply {
	if o == nil {
		return TextReply{}
	}
	if o.Tool != nil {
		return *o.Tool
	}
	return TextReply{Text: o.Text}
}
