package spatialmath

// The camera pose handed to the search is the pose of the camera in the world frame, so an
// object pose expressed in the camera frame maps to the world frame by pre-multiplication.

// CameraToWorld converts the pose of an object in the camera frame to the world frame.
func CameraToWorld(objInCamera, cameraPose Pose) Pose {
	return Compose(cameraPose, objInCamera)
}

// WorldToCamera converts the pose of an object in the world frame to the camera frame.
func WorldToCamera(objInWorld, cameraPose Pose) Pose {
	return Compose(PoseInverse(cameraPose), objInWorld)
}
