package component

import "github.com/milk9111/wheelchair/controller"

type Drive struct {
	Controller *controller.LocomotionController
	// LastMode is the mode observed at the end of the previous tick.
	LastMode controller.DriveMode
}

func NewDrive(c *controller.LocomotionController) *Drive {
	return &Drive{Controller: c, LastMode: c.Mode()}
}

var DriveComponent = NewComponent[Drive]()
