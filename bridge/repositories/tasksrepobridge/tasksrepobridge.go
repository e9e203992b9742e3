// Package tasksrepobridge exposes the task repository over HTTP.
package tasksrepobridge

import (
	"github.com/jrazmi/taskdeck/core/repositories/tasksrepo"
)

type bridge struct {
	tasksRepository *tasksrepo.Repository
}

func newBridge(tasksRepository *tasksrepo.Repository) *bridge {
	return &bridge{
		tasksRepository: tasksRepository,
	}
}
