package buildinfo

const Graffiti = "                        _        \n ___  ___  __ ___      _(_)_ __   \n/ __|/ _ \\/ _` \\ \\ /\\ / / | '_ \\  \n\\__ \\  __/ (_| |\\ V  V /| | | | | \n|___/\\___|\\__, | \\_/\\_/ |_|_| |_| \n             |_|                  \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "SEQWIN"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
