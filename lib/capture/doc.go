// Package capture renders camera images of the posed target object.
//
// ICapturePipeline is the contract used by the dispatcher: given a camera
// and the current transform it returns encoded PNG bytes. Cameras flagged
// DepthOnly are reduced to their red channel and encoded as 8 bit grayscale.
//
// Two backends are registered by default:
//
//   - wireframe: projects the edges of a unit cube, placed by the pose,
//     through a perspective camera. Cameras sit on a ring around the origin in
//     declared order. Depth cameras draw the distance to the camera instead
//     of edge colors.
//
//   - solid: fills the frame with a color derived from the position.
//
// Host applications can Register further backends, e.g. a GPU renderer.
package capture
