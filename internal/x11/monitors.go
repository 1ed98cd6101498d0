package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
)

// Output represents one enabled RandR output driving a physical display
type Output struct {
	Name     string
	X        int
	Y        int
	Width    int
	Height   int
	Primary  bool
	MirrorOf string // name of the output this one clones, empty if none
}

// crtcGroup is one enabled CRTC and the outputs it scans out to, in the
// order the server lists them.
type crtcGroup struct {
	X, Y          int
	Width, Height int
	Outputs       []string
}

// GetOutputs retrieves all enabled outputs using XRandR
func (c *Connection) GetOutputs() ([]Output, error) {
	conn := c.XUtil.Conn()

	// The "current" variant does not poll hardware, which matters when
	// this runs in response to every change notification.
	resources, err := randr.GetScreenResourcesCurrent(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	primaryName := ""
	if primary, err := randr.GetOutputPrimary(conn, c.Root).Reply(); err == nil && primary.Output != 0 {
		info, err := randr.GetOutputInfo(conn, primary.Output, resources.ConfigTimestamp).Reply()
		if err == nil {
			primaryName = string(info.Name)
		}
	}

	var groups []crtcGroup

	for _, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get crtc %d info: %w", crtc, err)
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		group := crtcGroup{
			X:      int(crtcInfo.X),
			Y:      int(crtcInfo.Y),
			Width:  int(crtcInfo.Width),
			Height: int(crtcInfo.Height),
		}
		for _, output := range crtcInfo.Outputs {
			outputInfo, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
			if err != nil {
				return nil, fmt.Errorf("failed to get output %d info: %w", output, err)
			}
			group.Outputs = append(group.Outputs, string(outputInfo.Name))
		}
		groups = append(groups, group)
	}

	return outputsFromGroups(groups, primaryName), nil
}

// OutputName resolves a RandR output XID to its name.
func (c *Connection) OutputName(output randr.Output) (string, error) {
	conn := c.XUtil.Conn()
	resources, err := randr.GetScreenResourcesCurrent(conn, c.Root).Reply()
	if err != nil {
		return "", fmt.Errorf("failed to get screen resources: %w", err)
	}
	info, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply()
	if err != nil {
		return "", fmt.Errorf("failed to get output %d info: %w", output, err)
	}
	return string(info.Name), nil
}

// outputsFromGroups flattens CRTC groups into outputs and works out which
// outputs clone another. Every output after the first on a CRTC mirrors
// the first one. A CRTC whose geometry exactly matches an earlier CRTC
// mirrors that CRTC's first output.
func outputsFromGroups(groups []crtcGroup, primaryName string) []Output {
	var outputs []Output
	for i, g := range groups {
		source := ""
		for j := 0; j < i; j++ {
			prev := groups[j]
			if prev.X == g.X && prev.Y == g.Y && prev.Width == g.Width && prev.Height == g.Height {
				source = prev.Outputs[0]
				break
			}
		}

		for k, name := range g.Outputs {
			mirrorOf := source
			if k > 0 {
				mirrorOf = g.Outputs[0]
			}
			outputs = append(outputs, Output{
				Name:     name,
				X:        g.X,
				Y:        g.Y,
				Width:    g.Width,
				Height:   g.Height,
				Primary:  name == primaryName,
				MirrorOf: mirrorOf,
			})
		}
	}
	return outputs
}
