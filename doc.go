// Package pagetrans translates live HTML documents in place.
//
// The engine walks a document's visible text nodes, resolves translations
// from a per-language cache, sends the misses to a remote provider in one
// batch, writes the results back into the same nodes and can later restore
// every node to the text it held when first seen.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/cybersafe-india/pagetrans"
//	    "github.com/cybersafe-india/pagetrans/cache"
//	    "github.com/cybersafe-india/pagetrans/dom"
//	    "github.com/cybersafe-india/pagetrans/provider"
//	)
//
//	func main() {
//	    p := provider.NewAzureProvider(provider.AzureConfig{
//	        SubscriptionKey: os.Getenv("AZURE_TRANSLATOR_KEY"),
//	    })
//
//	    engine := pagetrans.NewEngine(pagetrans.NewClient(p),
//	        pagetrans.WithCache(cache.NewMemory(0)),
//	    )
//
//	    page, _ := dom.ParseString("<p>Hello</p><p>World</p>")
//	    result, err := engine.TranslatePage(context.Background(), page, "hi")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Count) // 2
//
//	    engine.RestoreOriginalLanguage(page)
//	}
package pagetrans
