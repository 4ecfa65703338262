package intents

type FilesNavigate struct{ Delta int }

func (FilesNavigate) isIntent() {}

type FilesOpen struct{}

func (FilesOpen) isIntent() {}

type FilesFilter struct{}

func (FilesFilter) isIntent() {}
