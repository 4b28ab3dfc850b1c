// Package browser drives real Chromium pages for the page mapper.
//
// Two drivers are provided. Session wraps a Playwright browser, context and
// page, reached over a Playwright CDP session. RodSession wraps a rod page
// and can apply the stealth patches before navigation. Both satisfy Driver,
// which is all BuildMap needs.
//
// # Session Lifecycle
//
// Playwright sessions are named and owned by a SessionManager:
//
//  1. Initialize: install and start the Playwright driver once
//  2. Start: StartSession launches Chromium with the requested viewport
//  3. Use: Navigate, then BuildMap or ClearHighlights
//  4. Close: CloseSession, or CleanupIdleSessions after the idle timeout
//
// # Domain Rules
//
// DomainRules extends the interactivity rules for matching hosts. Patterns
// are exact hosts, parent domains or globs:
//
//	domains := browser.NewDomainRules(domtree.DefaultRules())
//	err := domains.Register("*.example.com", domtree.RuleSet{
//	    InteractiveRoles: []string{"widget"},
//	})
//
// # Example Usage
//
//	manager := browser.NewSessionManager()
//	if err := manager.Initialize(); err != nil {
//	    return err
//	}
//	session, err := manager.StartSession("main", browser.SessionOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	if err := session.Navigate("https://example.com", browser.NavigateOptions{}); err != nil {
//	    return err
//	}
//	res, err := browser.BuildMap(ctx, session, browser.MapOptions{Tree: domtree.DefaultOptions()})
package browser
