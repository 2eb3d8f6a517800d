package tui

import (
	"github.com/mnery/newsvault/internal/store"
	"github.com/mnery/newsvault/internal/syncer"
)

type articlesLoadedMsg struct {
	articles []store.Article
	latest   string
	queued   map[string]bool
}

type errMsg struct {
	err error
}

type syncDoneMsg struct {
	report *syncer.Report
	err    error
}

type enrichDoneMsg struct{}

type queueToggledMsg struct{}

type clearedMsg struct{}
