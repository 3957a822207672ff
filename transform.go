package ember

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// eulerToQuat converts Euler degrees to a quaternion, applying roll (Z),
// then pitch (X), then yaw (Y).
func eulerToQuat(deg mgl32.Vec3) mgl32.Quat {
	pitch := mgl32.QuatRotate(mgl32.DegToRad(deg[0]), mgl32.Vec3{1, 0, 0})
	yaw := mgl32.QuatRotate(mgl32.DegToRad(deg[1]), mgl32.Vec3{0, 1, 0})
	roll := mgl32.QuatRotate(mgl32.DegToRad(deg[2]), mgl32.Vec3{0, 0, 1})
	return yaw.Mul(pitch).Mul(roll)
}

// quatToEuler is the inverse of eulerToQuat. Pitch is limited to [-90, 90].
func quatToEuler(q mgl32.Quat) mgl32.Vec3 {
	l := q.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	x, y, z, w := float64(q.V[0]/l), float64(q.V[1]/l), float64(q.V[2]/l), float64(q.W/l)

	var pitch, yaw, roll float64
	sinp := -2 * (y*z - x*w)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
		yaw = 2 * math.Atan2(y, w)
	} else {
		pitch = math.Asin(sinp)
		yaw = math.Atan2(2*(x*z+y*w), 1-2*(x*x+y*y))
		roll = math.Atan2(2*(x*y+z*w), 1-2*(x*x+z*z))
	}
	const toDeg = 180 / math.Pi
	return mgl32.Vec3{float32(pitch * toDeg), float32(yaw * toDeg), float32(roll * toDeg)}
}

// updateLocal recomputes the cached local matrix: Translate * Rotate * Scale.
func (n *Node) updateLocal() {
	if !n.transformDirty {
		return
	}
	n.localRotation = eulerToQuat(n.Rotation)
	n.local = mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2]).
		Mul4(n.localRotation.Mat4()).
		Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
	n.transformDirty = false
}

// LocalTransform returns the node's local matrix.
func (n *Node) LocalTransform() mgl32.Mat4 {
	n.updateLocal()
	return n.local
}

// chainTo composes local transforms from n up to, but excluding, stop.
func (n *Node) chainTo(stop *Node) mgl32.Mat4 {
	m := mgl32.Ident4()
	for p := n; p != nil && p != stop; p = p.Parent {
		m = p.LocalTransform().Mul4(m)
	}
	return m
}

func (n *Node) rotationChainTo(stop *Node) mgl32.Quat {
	q := mgl32.QuatIdent()
	for p := n; p != nil && p != stop; p = p.Parent {
		p.updateLocal()
		q = p.localRotation.Mul(q)
	}
	return q
}

// WorldTransform returns the node's transform in world space.
func (n *Node) WorldTransform() mgl32.Mat4 {
	return n.chainTo(nil)
}

// WorldPosition returns the node's origin in world space.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldTransform().Col(3).Vec3()
}

// WorldRotation returns the accumulated rotation of the node and its ancestors.
func (n *Node) WorldRotation() mgl32.Quat {
	return n.rotationChainTo(nil)
}

// WorldScale returns the per-axis product of the node's and its ancestors' scales.
func (n *Node) WorldScale() mgl32.Vec3 {
	s := mgl32.Vec3{1, 1, 1}
	for p := n; p != nil; p = p.Parent {
		s = mgl32.Vec3{s[0] * p.Scale[0], s[1] * p.Scale[1], s[2] * p.Scale[2]}
	}
	return s
}

// TransformRelativeTo returns the node's transform expressed in root's space.
// Only the path below the nearest shared ancestor is composed. A nil root
// returns the world transform.
func (n *Node) TransformRelativeTo(root *Node) mgl32.Mat4 {
	if root == nil {
		return n.WorldTransform()
	}
	a := sharedAncestor(n, root)
	m := n.chainTo(a)
	if root != a {
		m = root.chainTo(a).Inv().Mul4(m)
	}
	return m
}

// RotationRelativeTo returns the node's rotation expressed in root's space.
func (n *Node) RotationRelativeTo(root *Node) mgl32.Quat {
	if root == nil {
		return n.WorldRotation()
	}
	a := sharedAncestor(n, root)
	q := n.rotationChainTo(a)
	if root != a {
		q = root.rotationChainTo(a).Inverse().Mul(q)
	}
	return q
}

// ScaleRelativeTo returns the per-axis scale from n up to root. Scales
// above the shared ancestor cancel out; a nil root returns WorldScale.
func (n *Node) ScaleRelativeTo(root *Node) mgl32.Vec3 {
	if root == nil {
		return n.WorldScale()
	}
	a := sharedAncestor(n, root)
	s := n.scaleChainTo(a)
	if root != a {
		r := root.scaleChainTo(a)
		s = mgl32.Vec3{s[0] / nonZero(r[0]), s[1] / nonZero(r[1]), s[2] / nonZero(r[2])}
	}
	return s
}

func (n *Node) scaleChainTo(stop *Node) mgl32.Vec3 {
	s := mgl32.Vec3{1, 1, 1}
	for p := n; p != nil && p != stop; p = p.Parent {
		s = mgl32.Vec3{s[0] * p.Scale[0], s[1] * p.Scale[1], s[2] * p.Scale[2]}
	}
	return s
}

func nonZero(v float32) float32 {
	if v == 0 {
		return 1
	}
	return v
}

// --- Transform property setters ---

// SetPosition sets the node's local position and marks it dirty.
func (n *Node) SetPosition(x, y, z float32) {
	n.Position = mgl32.Vec3{x, y, z}
	n.transformDirty = true
}

// SetRotation sets the node's Euler rotation in degrees and marks it dirty.
func (n *Node) SetRotation(pitch, yaw, roll float32) {
	n.Rotation = mgl32.Vec3{pitch, yaw, roll}
	n.transformDirty = true
}

// SetScale sets the node's scale and marks it dirty.
func (n *Node) SetScale(sx, sy, sz float32) {
	n.Scale = mgl32.Vec3{sx, sy, sz}
	n.transformDirty = true
}

// MarkDirty forces the local matrix to be rebuilt. Call after writing
// Position, Rotation or Scale directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// LocalToWorld converts a local-space point to world space.
func (n *Node) LocalToWorld(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, n.WorldTransform())
}

// WorldToLocal converts a world-space point to this node's local space.
func (n *Node) WorldToLocal(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, n.WorldTransform().Inv())
}
