// Package blossom provides a Go SDK for the Pollinations.AI generative API.
//
// Pollinations.AI is a free generative AI service for images, text and
// audio. This SDK provides a clean, idiomatic Go interface to the API:
// request construction, retries with backoff, SSE streaming and typed
// error handling.
//
// # Installation
//
// To install the SDK, use go get:
//
//	go get github.com/blossom-ai/blossom-go
//
// # Quick Start
//
// Create a client and generate an image:
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    blossom "github.com/blossom-ai/blossom-go"
//	)
//
//	func main() {
//	    client := blossom.NewClient()
//	    defer client.Close()
//
//	    img, err := client.Image.Generate(context.Background(), "a sunset over mountains", nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := os.WriteFile("sunset.png", img, 0o644); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Client Configuration
//
// The client can be configured using functional options:
//
//	client := blossom.NewClient(
//	    blossom.WithToken(os.Getenv("POLLINATIONS_TOKEN")),
//	    blossom.WithTimeout(time.Minute),
//	    blossom.WithRetries(5),
//	)
//
// # Streaming
//
// Text generation supports streaming via Server-Sent Events. The
// returned [Stream] yields decoded text fragments as they arrive:
//
//	stream, err := client.Text.GenerateStream(ctx, "Tell me a story", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for stream.Next() {
//	    fmt.Print(stream.Text())
//	}
//	if err := stream.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// For channel-based consumption, use [Stream.TextsWithContext], which
// releases the connection when the context is cancelled.
//
// # Error Handling
//
// The SDK provides a typed error carrying the failure class, the
// request ID of the call and an actionable suggestion:
//
//	result, err := client.Text.Generate(ctx, prompt, nil)
//	if err != nil {
//	    var apiErr *blossom.Error
//	    if errors.As(err, &apiErr) {
//	        switch apiErr.Type {
//	        case blossom.ErrorTypeRateLimit:
//	            time.Sleep(apiErr.RetryAfter)
//	        case blossom.ErrorTypeAuthentication:
//	            // Obtain a token at https://auth.pollinations.ai
//	        }
//	    }
//	}
//
// # Thread Safety
//
// The [Client] is safe for concurrent use by multiple goroutines. All
// calls share one pooled HTTP transport; attempts within a single call
// are strictly sequential, concurrency exists only across calls.
package blossom
