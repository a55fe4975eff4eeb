// Package provider holds the remote translation backends.
package provider

import "github.com/cybersafe-india/pagetrans"

// Provider is the interface for translation backends.
// This is an alias to the main package interface for convenience.
type Provider = pagetrans.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = pagetrans.TranslateRequest
