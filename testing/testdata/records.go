package testdata

// Single records in the input wire format.
var (
	Record_Accel_Level      = `{"type":"accel","time":1712345678.5,"x":0.12,"y":-0.4,"z":9.71}`
	Record_Accel_Dip        = `{"type":"accel","time":1712345679.0,"x":0.3,"y":-0.1,"z":-20}`
	Record_Accel_MissingZ   = `{"type":"accel","time":1712345679.5,"x":0.12,"y":-0.4}`
	Record_Fix              = `{"type":"fix","time":1712345678.9,"lat":47.17,"lon":-113.47,"fix_time":1712345678.0}`
	Record_Fix_OutOfRange   = `{"type":"fix","time":1712345679.9,"lat":147.17,"lon":-113.47}`
	Record_Fix_MissingCoord = `{"type":"fix","time":1712345680.9,"lat":47.17}`
)
