package model

// RenderSink redraws whatever it displays from a finished View.
// Implementations must be idempotent and must accept an empty View.
type RenderSink interface {
	Render(v View)
}

// RenderFunc adapts a function to RenderSink.
type RenderFunc func(v View)

// Render calls f(v).
func (f RenderFunc) Render(v View) {
	f(v)
}

// MultiSink fans a View out to several sinks in order.
type MultiSink []RenderSink

// Render hands v to every sink.
func (m MultiSink) Render(v View) {
	for _, sink := range m {
		if sink != nil {
			sink.Render(v)
		}
	}
}
