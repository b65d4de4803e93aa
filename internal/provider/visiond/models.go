package visiond

// Tipos de fio da API do visiond, o sidecar local de inferência.
// Coordenadas em pixels do frame enviado.

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// detectRequest for POST /detect
type detectRequest struct {
	Img string `json:"img"` // base64 encoded frame
}

// detectResponse from POST /detect
type detectResponse struct {
	Faces []detectedFace `json:"faces"`
}

type detectedFace struct {
	Box       box       `json:"box"`
	Keypoints keypoints `json:"keypoints"`
}

// keypoints segue o esquema de landmarks do detector do sidecar.
type keypoints struct {
	LeftTragion  point `json:"left_tragion"`
	RightTragion point `json:"right_tragion"`
	LeftEye      point `json:"left_eye"`
	RightEye     point `json:"right_eye"`
	MouthCenter  point `json:"mouth_center"`
	NoseTip      point `json:"nose_tip"`
}

// representRequest for POST /represent
type representRequest struct {
	Img   string `json:"img"`
	Boxes []box  `json:"boxes"`
}

// representResponse from POST /represent
type representResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// objectsRequest for POST /objects
type objectsRequest struct {
	Img            string   `json:"img"`
	ScoreThreshold float64  `json:"score_threshold"`
	MaxResults     int      `json:"max_results"`
	NumThreads     int      `json:"num_threads"`
	Labels         []string `json:"labels,omitempty"` // allow list; vazio = todos
}

// objectsResponse from POST /objects
type objectsResponse struct {
	Detections []objectDetection `json:"detections"`
}

type objectDetection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   box     `json:"box"`
}
