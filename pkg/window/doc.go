// Package window manages a bounded conversation context: messages are added
// with estimated token costs and the window compresses itself when the token
// budget is exceeded.
//
// Invariants:
// - After a compression pass the window fits the budget, unless preserved
//   messages plus the accumulated summary alone exceed it.
// - Preserved messages (recent, system, high importance) are never dropped.
// - Surviving messages keep their relative order.
// - Stats counters only ever grow; a summarizer failure never fails Add.
//
// Usage:
//
//	mgr, _ := window.New(window.Config{MaxTokens: 4096, Strategy: window.StrategyHybrid})
//	_ = mgr.AddMessage(ctx, window.RoleUser, "what changed in the last deploy?")
//	for _, msg := range mgr.Messages() {
//		fmt.Println(msg.Role, msg.Content)
//	}
package window
