// Package apihook tracks the lifecycle of HTTP requests for UI-style consumers.
//
// A Controller wraps an httpclient.Client and exposes the outcome of its most
// recent submission as a State{Fetching, Data, Error, Success}. Triggers such
// as FetchData and Mutate never block and never return errors; callers read
// State or Subscribe to transitions instead.
//
//	ctx = apihook.WithProvider(ctx, apihook.Provider{
//		Client: &httpclient.BaseConfig{BaseURL: "https://jsonplaceholder.typicode.com"},
//	})
//	todos := apihook.New[Todo](ctx)
//	todos.Subscribe(func(s apihook.State[Todo]) { render(s) })
//	todos.FetchData("/todos/1", nil)
//
// Call is the stateless counterpart for code that wants a plain error return.
package apihook
