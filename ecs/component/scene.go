package component

// SceneChangeRequest is a one-shot request asking SceneSystem to load a
// scene. An empty Scene reloads the current one.
type SceneChangeRequest struct {
	Scene string
}

// SceneLoaded is attached once per completed load.
type SceneLoaded struct {
	Scene    string
	Sequence uint64
}

// SceneMember marks entities that belong to the loaded scene and are torn
// down on the next load.
type SceneMember struct {
	Scene string
}

var SceneChangeRequestComponent = NewComponent[SceneChangeRequest]()
var SceneLoadedComponent = NewComponent[SceneLoaded]()
var SceneMemberComponent = NewComponent[SceneMember]()
