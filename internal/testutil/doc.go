// Package testutil provides shared test utilities for ranker.
//
// # Fixtures
//
// The fixtures.go file provides sample backend data:
//
//   - SampleImages() - three scored images with real PNG payloads
//   - SamplePNG(c) - a tiny encoded PNG of one color
//   - ProgressFrame, CompleteFrame, ErrorFrame - wire frames ready to write
//
// # Fake backend
//
// The backend.go file provides an httptest server that speaks the analysis
// protocol:
//
//   - NewBackend(t, script) - serves the health probe and runs script for each
//     analysis request
//   - SSEWriter - writes and flushes chunks, frames and typed events
//   - Backend.Requests() - every analysis request received, in order
//
// # Environment Helpers
//
//   - SetupTestDir(t) - creates a temp directory with a .ranker config
//   - WriteImages(t, dir, images) - writes image payloads as files
//   - WriteTestFile, MustMarshalJSON
//
// # Channels
//
//   - Receive(t, ch, timeout) - waits for one value
//   - ReceiveUntil(t, ch, timeout, match) - waits for the first matching value
//   - AssertNoReceive(t, ch, wait) - asserts nothing arrives
//
// # Usage
//
//	func TestSomething(t *testing.T) {
//	    backend := testutil.NewBackend(t, func(w *testutil.SSEWriter, r *http.Request) {
//	        w.Progress(1, 2, "a.png")
//	        w.Complete(testutil.SampleImages())
//	    })
//	    client := stream.NewClient(backend.URL)
//	    // ...
//	}
package testutil
