// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"boundedverify/internal/config"
	"boundedverify/internal/lsp"
	"boundedverify/internal/smt"
)

const lsName = "boundedverify"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)

	cfg := config.Default()
	solver := smt.NewExecSolver(cfg.Solver.Path, cfg.Solver.Timeout)
	h := lsp.NewBoundedVerifyHandler(solver)

	handler = protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentCompletion:         h.TextDocumentCompletion,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting boundedverify LSP server...")

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting boundedverify LSP server:", err)
		os.Exit(1)
	}
}
