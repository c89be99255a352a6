package llm

// Options represents provider-agnostic generation options.
type Options struct {
	// Model is the model identifier to use.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`

	// Temperature controls randomness of generation.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// TopP is the nucleus sampling parameter.
	TopP float64 `json:"topP,omitempty" yaml:"topP,omitempty"`

	// N is how many chat completion choices to generate.
	N int `json:"n,omitempty" yaml:"n,omitempty"`

	// Tools lists tools the model may call.
	Tools []Tool `json:"tools,omitempty" yaml:"tools,omitempty"`

	// ToolChoice controls which (if any) tool the model must call.
	ToolChoice *ToolChoice `json:"toolChoice,omitempty" yaml:"toolChoice,omitempty"`
}

// Option mutates Options.
type Option func(*Options)

// NewOptions creates Options with the supplied settings applied.
func NewOptions(options ...Option) *Options {
	ret := &Options{}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithMaxTokens sets the generation token cap.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) { o.MaxTokens = maxTokens }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(o *Options) { o.Temperature = temperature }
}

// WithTools sets the callable tool set.
func WithTools(tools []Tool) Option {
	return func(o *Options) { o.Tools = tools }
}

// WithToolChoice sets the tool choice policy.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) { o.ToolChoice = &choice }
}

// Clone returns a shallow copy of the options.
func (o *Options) Clone() *Options {
	if o == nil {
		return &Options{}
	}
	clone := *o
	return &clone
}
