package domain

// PromptAddendum is a deterministic text block, derived from a
// DocumentAnalysis, inserted into the generator's prompt. It is data, not
// control flow: the Generator never branches on document type, it just
// appends this text.
type PromptAddendum struct {
	// Text is the rendered Markdown block, in the analysis's working
	// language where natural (labels stay in English).
	Text string
}
