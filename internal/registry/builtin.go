package registry

// Client ID formats used by the built-in zones.
const (
	clientIDPrincipal = "{principal}"
	clientIDReplayer  = "{zone}-{principal}-replayer"
)

func group(name, file, kind, principal, secret string, count int) Group {
	return Group{Name: name, File: file, Kind: kind, Principal: principal, Secret: secret, Count: count}
}

// Builtin returns the default zone tables: office, production, security
// and storage.
func Builtin() *Registry {
	return &Registry{Zones: []Zone{
		{
			Name:     "office",
			ClientID: clientIDPrincipal,
			Groups: []Group{
				group("Temperature", "TemperatureMQTTset.csv", "sensor_temp", "office-sensortemp%d-replayer", "temp123", 8),
				group("Humidity", "HumidityMQTTset.csv", "sensor_hum", "office-sensorhum%d-replayer", "hum123", 8),
				group("Light", "LightIntensityMQTTset.csv", "sensor_light", "office-sensorlight%d-replayer", "light123", 5),
				group("DoorLock", "DoorlockMQTTset.csv", "sensor_door", "office-sensordoor%d-replayer", "door123", 5),
			},
		},
		{
			Name:     "production",
			ClientID: clientIDPrincipal,
			Groups: []Group{
				group("PredictiveMaintenance", "predictive-maintenance_gotham.csv", "sensor_predictive", "production-sensorpredictive%d-replayer", "pred123", 20),
				group("HydraulicSystem", "hydraulic-system_gotham.csv", "sensor_hydraulic", "production-sensorhydraulic%d-replayer", "hyd123", 20),
				group("FlameSensor", "Edge-IIoTset_flame_sensor.csv", "sensor_flame", "production-sensorflame%d-replayer", "flame123", 5),
				group("Smoke", "SmokeMQTTset.csv", "sensor_smoke", "production-sensorsmoke%d-replayer", "smoke123", 5),
				group("AirQuality", "air-quality_gotham.csv", "sensor_air", "production-sensorair%d-replayer", "air123", 10),
				group("FanSensor", "FansensorMQTTset.csv", "sensor_fan", "production-sensorfan%d-replayer", "fan123", 5),
				group("FanSpeed", "FanSpeedControllerMQTTset.csv", "sensor_fanspeed", "production-sensorfanspeed%d-replayer", "fanspeed123", 5),
			},
		},
		{
			Name:     "security",
			ClientID: clientIDReplayer,
			Groups: []Group{
				group("DoorLock", "DoorlockMQTTset.csv", "sensor_door", "security-sensor_door%d", "door123", 20),
				group("CO-Gas", "CO-GasMQTTset.csv", "sensor_co", "security-sensor_co%d", "co123", 5),
				group("AirQuality", "air-quality_gotham.csv", "sensor_air", "security-sensor_air%d", "air123", 5),
				group("Smoke", "SmokeMQTTset.csv", "sensor_smoke", "security-sensor_smoke%d", "smoke123", 3),
				group("FlameSensor", "Edge-IIoTset_flame_sensor.csv", "sensor_flame", "security-sensor_flame%d", "flame123", 2),
			},
		},
		{
			Name:     "storage",
			ClientID: clientIDReplayer,
			Groups: []Group{
				group("Temperature", "TemperatureMQTTset.csv", "sensor_temp", "sensor_temp%d", "", 3),
				group("Humidity", "HumidityMQTTset.csv", "sensor_hum", "sensor_hum%d", "", 3),
				group("CO-Gas", "CO-GasMQTTset.csv", "sensor_co", "sensor_co%d", "", 3),
				group("Smoke", "SmokeMQTTset.csv", "sensor_smoke", "sensor_smoke%d", "", 3),
				group("FlameSensor", "Edge-IIoTset_flame_sensor.csv", "sensor_flame", "sensor_flame%d", "", 3),
				group("Light", "LightIntensityMQTTset.csv", "sensor_light", "sensor_light%d", "", 3),
				group("SoundSensor", "Edge-IIoTset_sound_sensors.csv", "sensor_sound", "sensor_sound%d", "", 3),
				group("WaterLevel", "Edge-IIoTset_WaterLV.csv", "sensor_water", "sensor_water%d", "", 2),
				group("DistanceSensor", "Edge-IIoTset_distance_sensor.csv", "sensor_distance", "sensor_distance%d", "", 2),
				group("PhLevel", "Edge-IIoTset_PhLv.csv", "sensor_ph", "sensor_ph%d", "", 2),
				group("SoilMoisture", "Edge-IIoTset_soil_moisture.csv", "sensor_soil", "sensor_soil%d", "", 2),
				group("Camera", "MotionMQTTset.csv", "sensor_motion", "sensor_motion", "", 1),
			},
		},
	}}
}
