package models

// Device is a row of table.json?content=devices
type Device struct {
	ObjID       int64  `json:"objid"`
	Probe       string `json:"probe"`
	Group       string `json:"group"`
	Device      string `json:"device"`
	Host        string `json:"host"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	SensorCount int    `json:"sensorcount"`
	DownSensors int    `json:"downsens"`
}

// Sensor is a row of table.json?content=sensors
type Sensor struct {
	ObjID     int64  `json:"objid"`
	Group     string `json:"group"`
	Device    string `json:"device"`
	Sensor    string `json:"sensor"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	LastValue string `json:"lastvalue"`
	Host      string `json:"host"`
}

// Channel is a row of table.json?content=channels
type Channel struct {
	Name      string `json:"name"`
	LastValue string `json:"lastvalue"`
	Unit      string `json:"unit"`
}

// ChannelRow is a channel flattened with the sensor that owns it
type ChannelRow struct {
	Group     string
	Device    string
	Sensor    string
	Host      string
	SensorID  int64
	Channel   string
	LastValue string
	Unit      string
}
