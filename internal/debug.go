package internal

import (
	"fmt"
	"os"
	"os/user"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/earthboundkid/versioninfo/v2"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)

func ShowVersion(logger *log.Logger) {
	logger.Info("Version", "version", versioninfo.Short())
}

// EnvironmentVars logs environ sorted by key, masking anything that looks like a credential.
func EnvironmentVars(logger *log.Logger, environ []string) {
	logger.Debug("Environment variables")

	environ = append([]string(nil), environ...)
	sort.Slice(environ, func(i, j int) bool {
		keyI := strings.SplitN(environ[i], "=", 2)[0]
		keyJ := strings.SplitN(environ[j], "=", 2)[0]
		return keyI < keyJ
	})

	for _, entry := range environ {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		if sensitiveRegex.MatchString(kv[0]) {
			logger.Debugf("  %s: ********", kv[0])
		} else {
			logger.Debugf("  %s: %s", kv[0], kv[1])
		}
	}
}

func UserInfo(logger *log.Logger) {
	logger.Debug("Process", "pid", os.Getpid())
	currentUser, err := user.Current()
	if err != nil {
		logger.Warn("Error getting current user", "err", err)
	} else {
		logger.Debugf("User: uid=%s(%s) gid=%s", currentUser.Uid, currentUser.Username, currentUser.Gid)
	}
	groups, err := os.Getgroups()
	if err != nil {
		logger.Warn("Error getting groups", "err", err)
		return
	}
	groupNames := make([]string, 0, len(groups))
	for _, gid := range groups {
		group, err := user.LookupGroupId(strconv.Itoa(gid))
		if err != nil {
			groupNames = append(groupNames, strconv.Itoa(gid)) // Append ID if name lookup fails
		} else {
			groupNames = append(groupNames, fmt.Sprintf("%s(%s)", group.Name, group.Gid))
		}
	}
	logger.Debugf("Groups: %v", groupNames)
}
