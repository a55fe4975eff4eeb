package pagetrans

import "sync"

// parallelThreshold is the fewest distinct texts worth fanning lookups out for.
const parallelThreshold = 8

// lookupAll resolves texts against cache with up to workers lookups in
// flight. Texts must be distinct. Misses keep the order of texts.
func lookupAll(cache TranslationCache, texts []string, lang string, workers int) (map[string]string, []string) {
	hits := make(map[string]string, len(texts))
	if cache == nil {
		return hits, append([]string(nil), texts...)
	}

	if workers <= 1 || len(texts) < parallelThreshold {
		var misses []string
		for _, text := range texts {
			if cached, ok := cache.Lookup(text, lang); ok {
				hits[text] = cached
			} else {
				misses = append(misses, text)
			}
		}
		return hits, misses
	}

	type lookupResult struct {
		index int
		value string
		found bool
	}

	results := make(chan lookupResult, len(texts))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			value, found := cache.Lookup(text, lang)
			results <- lookupResult{index: i, value: value, found: found}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	found := make([]bool, len(texts))
	for r := range results {
		if r.found {
			found[r.index] = true
			hits[texts[r.index]] = r.value
		}
	}

	var misses []string
	for i, text := range texts {
		if !found[i] {
			misses = append(misses, text)
		}
	}

	return hits, misses
}

// distinctTexts returns the original texts of nodes, first occurrence only.
func distinctTexts(nodes []TextNode) []string {
	seen := make(map[string]bool, len(nodes))
	texts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if seen[node.OriginalText] {
			continue
		}
		seen[node.OriginalText] = true
		texts = append(texts, node.OriginalText)
	}
	return texts
}
