package suite

import (
	"github.com/apicheck/apicheck/config"
	"github.com/apicheck/apicheck/match"
	"github.com/apicheck/apicheck/scenario"
)

// GitHub returns the read-only checks against the GitHub REST API.
func GitHub() []scenario.Scenario {
	gh := func(name string, step scenario.Step) scenario.Scenario {
		return single(name, config.GitHub, step)
	}
	withQuery := func(step scenario.Step, q map[string]string) scenario.Step {
		step.Query = q
		return step
	}
	return []scenario.Scenario{
		gh("api root responds", get("/", scenario.Status(200))),
		gh("octocat has a name", get("/users/octocat",
			scenario.Status(200),
			scenario.TypeOf("name", match.KindString),
		)),
		gh("octocat is a user", get("/users/octocat",
			scenario.Status(200),
			scenario.Equal("type", "User"),
		)),
		gh("repository 1296269 is Hello-World", get("/repositories/1296269",
			scenario.Status(200),
			scenario.Equal("name", "Hello-World"),
		)),
		gh("nonexistent user is not found", get("/users/nonexistentuser12345",
			scenario.Status(404),
		)),
		gh("google repositories page of 5", withQuery(get("/users/google/repos",
			scenario.Status(200),
			scenario.Count("", 5),
			scenario.Equal("0.name", ".allstar"),
		), map[string]string{"per_page": "5"})),
		gh("microsoft has followers", get("/users/microsoft/followers",
			scenario.Status(200),
			scenario.NonEmpty(""),
			scenario.TypeOf("0.login", match.KindString),
		)),
		gh("facebook public repository count", get("/users/facebook",
			scenario.Status(200),
			scenario.Equal("public_repos", 153),
		)),
		gh("react is written in JavaScript", get("/repos/facebook/react",
			scenario.Status(200),
			scenario.Equal("language", "JavaScript"),
		)),
		gh("emoji +1 exists", get("/emojis",
			scenario.Status(200),
			scenario.Equal("+1", "https://github.githubassets.com/images/icons/emoji/unicode/1f44d.png?v8"),
		)),
		gh("linux repository has name, owner and language", get("/repos/torvalds/linux",
			scenario.Status(200),
			scenario.Present("name"),
			scenario.Present("owner"),
			scenario.Present("language"),
		)),
		{
			Name:         "vscode has more stars than atom",
			Collaborator: config.GitHub,
			Steps: []scenario.Step{
				{
					Name:   "fetch atom",
					Method: "GET",
					URL:    "/repos/atom/atom",
					Store:  map[string]string{"atom_stars": "stargazers_count"},
					Expect: []scenario.Expectation{scenario.Status(200)},
				},
				{
					Name:   "fetch vscode",
					Method: "GET",
					URL:    "/repos/microsoft/vscode",
					Expect: []scenario.Expectation{
						scenario.Status(200),
						scenario.Compare("stargazers_count", match.OpGT, "$atom_stars"),
					},
				},
			},
		},
		gh("MIT license name", get("/licenses/mit",
			scenario.Status(200),
			scenario.Equal("name", "MIT License"),
		)),
		gh("common license count", get("/licenses",
			scenario.Status(200),
			scenario.Count("", 13),
		)),
		gh("apache-2.0 search returns apache repositories", withQuery(get("/search/repositories",
			scenario.Status(200),
			scenario.Equal("items.0.license.key", "apache-2.0"),
		), map[string]string{"q": "license:apache-2.0"})),
		gh("docker repository belongs to the moby organization", get("/repos/moby/docker",
			scenario.Status(200),
			scenario.Equal("owner.login", "moby"),
			scenario.Equal("owner.type", "Organization"),
		)),
		gh("latest tensorflow commit has a message", get("/repos/tensorflow/tensorflow/commits",
			scenario.Status(200),
			scenario.NonEmpty("0.commit.message"),
		)),
		gh("apple is an organization", get("/users/apple",
			scenario.Status(200),
			scenario.Equal("login", "apple"),
			scenario.Equal("type", "Organization"),
		)),
		gh("kubernetes contributors page is bounded", withQuery(get("/repos/kubernetes/kubernetes/contributors",
			scenario.Status(200),
			scenario.TypeOf("", match.KindArray),
			scenario.Compare("#", match.OpLE, 100),
		), map[string]string{"per_page": "100"})),
		gh("torvalds profile", get("/users/torvalds",
			scenario.Status(200),
			scenario.Equal("login", "torvalds"),
			scenario.Equal("name", "Linus Torvalds"),
			scenario.TypeOf("public_repos", match.KindInteger),
			scenario.Compare("public_repos", match.OpGT, 0),
		)),
	}
}
