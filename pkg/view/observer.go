package view

// Observer receives view lifecycle notifications. Implementations must
// be cheap: they run inline on the UI goroutine.
type Observer interface {
	// ViewCreated is called once a view finished construction.
	ViewCreated(v *View)

	// ViewRemoved is called once, on the first Remove.
	ViewRemoved(v *View)

	// EventDelegated is called when a listener is attached to the root.
	EventDelegated(v *View, event, selector string)

	// EventUndelegated is called when a listener is detached.
	EventUndelegated(v *View, event, selector string)

	// EventHandled is called each time a delegated handler runs.
	EventHandled(v *View, event, selector string)

	// DiffRender is called when a diff render is requested. The returned
	// function is called when the render completes or fails.
	DiffRender(v *View, fromTemplate bool) func(mutations int, err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) ViewCreated(*View)                      {}
func (NopObserver) ViewRemoved(*View)                      {}
func (NopObserver) EventDelegated(*View, string, string)   {}
func (NopObserver) EventUndelegated(*View, string, string) {}
func (NopObserver) EventHandled(*View, string, string)     {}

func (NopObserver) DiffRender(*View, bool) func(int, error) {
	return func(int, error) {}
}

// Observers fans notifications out to several observers, in order.
type Observers []Observer

func (o Observers) ViewCreated(v *View) {
	for _, obs := range o {
		obs.ViewCreated(v)
	}
}

func (o Observers) ViewRemoved(v *View) {
	for _, obs := range o {
		obs.ViewRemoved(v)
	}
}

func (o Observers) EventDelegated(v *View, event, selector string) {
	for _, obs := range o {
		obs.EventDelegated(v, event, selector)
	}
}

func (o Observers) EventUndelegated(v *View, event, selector string) {
	for _, obs := range o {
		obs.EventUndelegated(v, event, selector)
	}
}

func (o Observers) EventHandled(v *View, event, selector string) {
	for _, obs := range o {
		obs.EventHandled(v, event, selector)
	}
}

func (o Observers) DiffRender(v *View, fromTemplate bool) func(int, error) {
	done := make([]func(int, error), 0, len(o))
	for _, obs := range o {
		done = append(done, obs.DiffRender(v, fromTemplate))
	}
	return func(mutations int, err error) {
		for _, fn := range done {
			fn(mutations, err)
		}
	}
}
