package trip

// Example returns the built-in Alaska cruise and land tour.
func Example() *TripData {
	return &TripData{
		Title: "Alaska Cruise & Land Tour",
		Locations: []Location{
			{Name: "Denali Ntl Park", Lat: 63.1148, Lng: -151.1926, IsStart: true, LabelPosition: "left"},
			{Name: "Talkeetna", Lat: 62.3209, Lng: -150.1066, LabelPosition: "top"},
			{Name: "Anchorage", Lat: 61.2181, Lng: -149.9003, LabelPosition: "left"},
			{Name: "Girdwood", Lat: 60.9426, Lng: -149.1663, LabelPosition: "top-right"},
			{Name: "Seward", Lat: 60.1042, Lng: -149.4422, LabelPosition: "left"},
			{Name: "Hubbard Glacier", Lat: 60.0192, Lng: -139.4716, LabelPosition: "top-right"},
			{Name: "Skagway", Lat: 59.4583, Lng: -135.3139, LabelPosition: "right"},
			{Name: "Sitka", Lat: 57.0531, Lng: -135.33, LabelPosition: "right"},
			{Name: "Ketchikan", Lat: 55.3422, Lng: -131.6461, LabelPosition: "right"},
			{Name: "Vancouver", Lat: 49.2827, Lng: -123.1207, IsEnd: true, LabelPosition: "bottom"},
		},
		Segments: []Segment{
			{From: "Denali Ntl Park", To: "Talkeetna", Transport: "rail"},
			{From: "Talkeetna", To: "Anchorage", Transport: "rail"},
			{From: "Anchorage", To: "Girdwood", Transport: "drive"},
			{From: "Girdwood", To: "Seward", Transport: "drive"},
			{From: "Seward", To: "Hubbard Glacier", Transport: "cruise"},
			{From: "Hubbard Glacier", To: "Skagway", Transport: "cruise"},
			{From: "Skagway", To: "Sitka", Transport: "cruise"},
			{From: "Sitka", To: "Ketchikan", Transport: "cruise"},
			{From: "Ketchikan", To: "Vancouver", Transport: "cruise"},
		},
	}
}
