package camera

import (
	"fmt"
	"strings"
)

// CameraProperty reads the current value of a camera property. The
// names of readable properties are listed in the get_camprop command
// descriptor.
//
// Parameters:
//   - name: camera property name (for example "takemode")
//
// Returns:
//   - string: the property's current value
//   - error: *RequestError for unknown properties or any command error
func (c *Client) CameraProperty(name string) (string, error) {
	if err := c.actionBegin(CamModeRecord, false); err != nil {
		return "", err
	}
	defer c.actionEnd()

	records, err := c.XMLQuery("get_camprop",
		Arg{"com", "get"}, Arg{"propname", name})
	if err != nil {
		return "", err
	}
	if len(records) == 0 || records[0]["value"] == "" {
		return "", fmt.Errorf("camera returned no value for property '%s'", name)
	}
	return records[0]["value"], nil
}

// SetCameraProperty writes a camera property. The value is validated
// against the camera's own list of supported values before anything is
// sent.
//
// Parameters:
//   - name: writable camera property name
//   - value: one of SettablePropertyValues()[name]
//
// Returns:
//   - error: *RequestError when the value is not supported, or any
//     command error
func (c *Client) SetCameraProperty(name, value string) error {
	if values, ok := c.propValues[name]; ok && !contains(values, value) {
		return &RequestError{Message: fmt.Sprintf(
			"value '%s' not supported for camera property '%s'; supported values: %s",
			value, name, strings.Join(values, ", "))}
	}

	if err := c.actionBegin(CamModeRecord, false); err != nil {
		return err
	}
	defer c.actionEnd()

	body := fmt.Sprintf("<?xml version=\"1.0\"?>\r\n<set>\r\n<value>%s</value>\r\n</set>\r\n", value)
	_, err := c.SendCommandPost("set_camprop", []byte(body),
		Arg{"com", "set"}, Arg{"propname", name})
	return err
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
