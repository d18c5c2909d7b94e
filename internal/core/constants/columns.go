package constants

// Column sets used by the default configurations.
var (
	AccelerometerColumns = []string{"Accelerometer_X", "Accelerometer_Y", "Accelerometer_Z"}
	MagnetometerColumns  = []string{"Magnetometer_X", "Magnetometer_Y", "Magnetometer_Z"}
	ClimateColumns       = []string{"Temperature", "Humidity"}
)

// DefaultColumns returns a copy of the default column set.
func DefaultColumns() []string {
	return append([]string(nil), AccelerometerColumns...)
}
