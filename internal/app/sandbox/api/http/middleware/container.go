// Package middleware collects huma middlewares per handler group.
package middleware

import "github.com/danielgtaylor/huma/v2"

// Container accumulates middlewares until they are handed to a handler.
type Container struct {
	mws huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.mws = append(c.mws, mw)
}

// GetAllAndClear returns the collected middlewares and resets the container.
func (c *Container) GetAllAndClear() huma.Middlewares {
	out := c.mws
	c.mws = nil
	return out
}
