// Package flashfs mounts the littlefs filesystem that lives on the KunaiGC
// flash above the loader image.
//
// Mount sizes the filesystem from the chip's JEDEC ID and never formats; it
// is what the boot path uses. MountOrFormat formats once when the first
// mount fails and is used by the menu and the flash tool.
//
//	vol, err := flashfs.MountOrFormat(dev)
//	if err != nil {
//	    return err
//	}
//	defer vol.Close()
//	count, err := vol.IncrementBootCount()
package flashfs
