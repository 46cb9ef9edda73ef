package component

import "github.com/milk9111/wheelchair/controller"

type Look struct {
	Controller *controller.LookController
}

var LookComponent = NewComponent[Look]()
