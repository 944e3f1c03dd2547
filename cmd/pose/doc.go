// Package pose implements the pose command, which samples poses of a scene
// without starting a server.
package pose
