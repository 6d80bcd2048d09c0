package domain

// ImageSource tells where the currently published image came from.
type ImageSource int

const (
	SourcePlaceholder ImageSource = iota
	SourceRemote
)

func (s ImageSource) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	default:
		return "placeholder"
	}
}
