// Package dom provides the DOM capability that Figura views are built on.
//
// The DOM is an in-memory HTML tree backed by golang.org/x/net/html, with
// CSS selector matching from github.com/andybalholm/cascadia. It offers
// the subset of the browser DOM that the view layer consumes:
//
//   - element creation from markup (Document.Parse, Element.SetInnerHTML)
//   - scoped lookups (Element.Query, Element.Matches, Element.Closest)
//   - listeners (Element.AddEventListener, Element.RemoveEventListener)
//   - bubbling dispatch (Element.Dispatch)
//   - node insertion, removal and replacement
//
// # Identity
//
// Every html.Node is exposed through exactly one *Element per Document, so
// pointer comparison on *Element is node identity. Listeners live on the
// *Element and survive moves within the tree.
//
// # Concurrency
//
// A Document and its elements are not safe for concurrent use. Drive them
// from a single goroutine, the way a browser drives its UI thread.
package dom
