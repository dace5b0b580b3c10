// Package influxdb records traffic-light lamp changes as time-series points.
//
// Writes go through the client's non-blocking WriteAPI: points are batched and
// flushed in the background, so recording a lamp change never stalls a state
// transition. Write failures are reported asynchronously through SetOnError.
//
// Each lamp change becomes one point:
//
//	light_state,light=RED,controller=trafficlight on=true,value=1i <ts>
package influxdb
