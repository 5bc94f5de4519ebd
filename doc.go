// Package trellis is a retained-mode 3D scene graph for [Ebitengine].
//
// Client code never touches the graph directly. It holds lightweight handles
// (Mesh, Group, Camera, Light, ...) that queue mutation messages; a [Hub]
// owns the nodes and applies the queue once per frame, then recomputes
// world transforms and visibility before anything is drawn. Handles are safe
// to use from any goroutine and never block.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	hub := trellis.NewHub()
//	scene := hub.SpawnScene()
//	cam := hub.SpawnPerspectiveCamera(60, 0.1, 100)
//	cam.LookAt(mgl32.Vec3{0, 2, 5}, mgl32.Vec3{})
//
//	cube := hub.SpawnMesh(trellis.NewCuboid(1, 1, 1), trellis.LambertMaterial{Color: trellis.ColorWhite})
//	scene.Add(cube)
//	scene.Add(hub.SpawnAmbientLight(trellis.ColorWhite, 0.3))
//
//	trellis.Run(scene, cam, trellis.RunConfig{
//		Title: "My Game", Width: 640, Height: 480,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Renderer.Render] from Draw. Render runs the frame update itself.
//
// # Frames
//
// [Hub.Update] drains the mailbox, reclaims destroyed nodes and recomputes
// world state. [Scene.SyncGuard] does the same and keeps the Hub locked so
// the synchronized graph can be read with [SyncGuard.Resolve] or walked with
// a [TreeWalker]. Messages sent while a guard is held wait for the next
// frame.
//
// # Scene graph
//
// Groups keep their children most recently added first. A node's world
// transform is its parent's world transform composed with its own; it is
// world-visible only if it and every ancestor are visible.
//
// Tweens (via [gween]) animate handles through the same message path, and
// graph events can be forwarded to an ECS world (via the [Donburi] adapter in
// trellis/ecs).
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package trellis
