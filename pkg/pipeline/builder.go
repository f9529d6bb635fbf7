package pipeline

// DictationBuilder assembles a session's stage chain in processing order.
// Pre-stages run before the core chain, post-stages after it.
type DictationBuilder struct {
	pre  []Stage
	core []Stage
	post []Stage
}

func NewDictationBuilder() *DictationBuilder {
	return &DictationBuilder{}
}

func (b *DictationBuilder) WithStage(s Stage) *DictationBuilder {
	b.core = append(b.core, s)
	return b
}

func (b *DictationBuilder) WithStageList(list []Stage) *DictationBuilder {
	for _, s := range list {
		if s != nil {
			b.core = append(b.core, s)
		}
	}
	return b
}

func (b *DictationBuilder) WithDisfluency(s Stage) *DictationBuilder {
	return b.WithStage(s)
}

func (b *DictationBuilder) WithGrammar(s Stage) *DictationBuilder {
	return b.WithStage(s)
}

func (b *DictationBuilder) WithAssembler(s Stage) *DictationBuilder {
	return b.WithStage(s)
}

func (b *DictationBuilder) WithNormalizer(s Stage) *DictationBuilder {
	b.pre = append(b.pre, s)
	return b
}

func (b *DictationBuilder) WithSink(s Stage) *DictationBuilder {
	b.post = append(b.post, s)
	return b
}

func (b *DictationBuilder) Build(cfg Config) Orchestrator {
	stages := append(append(b.pre, b.core...), b.post...)
	return NewWithStages(cfg, stages...)
}
