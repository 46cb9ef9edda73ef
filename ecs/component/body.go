package component

import "github.com/milk9111/wheelchair/scene"

// Body links an entity to its kinematic host body.
type Body struct {
	Body *scene.Body
}

var BodyComponent = NewComponent[Body]()
