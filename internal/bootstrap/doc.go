// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap assembles and runs the soul-agent daemon.
//
// It wires the configured components together: vault store, ingest
// queue, LLM classifier, pipeline consumer, capture producers, the
// loopback HTTP server, and the insight scheduler. All long-running
// parts run under one errgroup and stop together on SIGTERM or
// context cancellation.
//
// # Typical Usage
//
//	cfg, err := config.Load(configPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until the context is canceled, then drains the queue,
// flushes terminal buffers, and stops the scheduler before returning.
package bootstrap
